package main

import (
	"fmt"
	"time"

	"hotelsite/internal/config"
	"hotelsite/internal/database"
	"hotelsite/internal/export"
	"hotelsite/internal/google"
	"hotelsite/internal/models"

	"github.com/spf13/cobra"
)

func SeedRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-rooms",
		Short: "Load the room catalog file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				path = a.cfg.Booking.RoomsFile
			}
			if path == "" {
				return fmt.Errorf("no rooms file: pass --file or set booking.rooms_file")
			}

			rooms, err := config.LoadRooms(path)
			if err != nil {
				return err
			}
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			if err := a.rooms().SeedRooms(cmd.Context(), rooms, overwrite); err != nil {
				return err
			}
			fmt.Printf("Seeded %d rooms from %s\n", len(rooms), path)
			return nil
		},
	}
	cmd.Flags().String("file", "", "rooms YAML file (default booking.rooms_file)")
	cmd.Flags().Bool("overwrite", true, "replace rooms that already exist, discarding admin edits")
	return cmd
}

func AvailabilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Inspect or change the availability ledger",
	}
	cmd.AddCommand(availabilitySetCmd(), availabilityShowCmd())
	return cmd
}

func availabilitySetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set open slots and an optional special price for a date range (both ends included)",
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, _ := cmd.Flags().GetInt64("room")
			slots, _ := cmd.Flags().GetInt("slots")
			from, err := dateFlag(cmd, "from", time.Time{})
			if err != nil {
				return err
			}
			to, err := dateFlag(cmd, "to", from)
			if err != nil {
				return err
			}
			if from.IsZero() {
				return fmt.Errorf("--from is required")
			}

			var specialPrice *int64
			if cmd.Flags().Changed("price") {
				p, _ := cmd.Flags().GetInt64("price")
				specialPrice = &p
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.bookings().SetAvailability(cmd.Context(), roomID, from, to, slots, specialPrice); err != nil {
				return err
			}
			fmt.Printf("Room %d: %d slots from %s to %s\n", roomID, slots, from.Format(models.DateLayout), to.Format(models.DateLayout))
			return nil
		},
	}
	cmd.Flags().Int64("room", 0, "room ID")
	cmd.Flags().String("from", "", "first date, YYYY-MM-DD")
	cmd.Flags().String("to", "", "last date, YYYY-MM-DD (default --from)")
	cmd.Flags().Int("slots", 0, "open slots per night")
	cmd.Flags().Int64("price", 0, "special nightly price")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

func availabilityShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved nightly availability of a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, _ := cmd.Flags().GetInt64("room")
			days, _ := cmd.Flags().GetInt("days")
			from, err := dateFlag(cmd, "from", models.NormalizeDate(time.Now()))
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			nights, err := a.bookings().GetAvailability(cmd.Context(), roomID, from, from.AddDate(0, 0, days))
			if err != nil {
				return err
			}
			for _, n := range nights {
				source := "ledger"
				if n.Fallback {
					source = "catalog"
				}
				fmt.Printf("%s  slots=%-3d rate=%-8d %s\n", n.Date.Format(models.DateLayout), n.AvailableSlots, n.NightlyRate, source)
			}
			return nil
		},
	}
	cmd.Flags().Int64("room", 0, "room ID")
	cmd.Flags().String("from", "", "first date, YYYY-MM-DD (default today)")
	cmd.Flags().Int("days", 14, "number of nights to show")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

func QuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a stay without booking it",
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, _ := cmd.Flags().GetInt64("room")
			guests, _ := cmd.Flags().GetInt("guests")
			rooms, _ := cmd.Flags().GetInt("rooms")
			checkIn, err := dateFlag(cmd, "check-in", time.Time{})
			if err != nil {
				return err
			}
			checkOut, err := dateFlag(cmd, "check-out", time.Time{})
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			quote, err := a.bookings().Quote(cmd.Context(), models.StayRequest{
				RoomID:   roomID,
				CheckIn:  checkIn,
				CheckOut: checkOut,
				Guests:   guests,
				Rooms:    rooms,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Nights:      %d\n", quote.Nights)
			fmt.Printf("Rooms:       %d (required %d)\n", quote.Rooms, quote.RequiredRooms)
			fmt.Printf("Per night:   %d\n", quote.PerNightEffective)
			fmt.Printf("Subtotal:    %d\n", quote.Subtotal)
			fmt.Printf("Discount:    %d%%\n", quote.DiscountPercent)
			fmt.Printf("Base amount: %d\n", quote.BaseAmount)
			for _, line := range quote.Taxes {
				fmt.Printf("  %-10s %5.2f%% %d\n", line.Name, line.Rate, line.Amount)
			}
			fmt.Printf("Taxes:       %d\n", quote.TaxAmount)
			fmt.Printf("Total:       %d\n", quote.Total)
			return nil
		},
	}
	cmd.Flags().Int64("room", 0, "room ID")
	cmd.Flags().String("check-in", "", "check-in date, YYYY-MM-DD")
	cmd.Flags().String("check-out", "", "check-out date, YYYY-MM-DD")
	cmd.Flags().Int("guests", 1, "number of guests")
	cmd.Flags().Int("rooms", 0, "number of rooms (default: as many as the guests need)")
	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("check-in")
	_ = cmd.MarkFlagRequired("check-out")
	return cmd
}

func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an Excel report of bookings, cancellations and occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			today := models.NormalizeDate(time.Now())
			from, err := dateFlag(cmd, "from", today)
			if err != nil {
				return err
			}
			to, err := dateFlag(cmd, "to", from.AddDate(0, 0, 30))
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			bookings := a.bookings()
			report := &export.Report{From: from, To: to}
			if report.Rooms, err = a.rooms().GetAllRooms(ctx); err != nil {
				return err
			}
			if report.Bookings, err = bookings.GetBookingsByDateRange(ctx, from, to); err != nil {
				return err
			}
			if report.Cancelled, err = bookings.GetCancelledBookingsByDateRange(ctx, from, to); err != nil {
				return err
			}

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = a.cfg.Exports.Path
			}
			path, err := export.SaveFile(dir, report)
			if err != nil {
				return err
			}
			fmt.Printf("Report written to %s (%d bookings, %d cancelled)\n", path, len(report.Bookings), len(report.Cancelled))
			return nil
		},
	}
	cmd.Flags().String("from", "", "first date, YYYY-MM-DD (default today)")
	cmd.Flags().String("to", "", "last date, YYYY-MM-DD (default --from + 30 days)")
	cmd.Flags().String("dir", "", "output directory (default exports.path)")
	return cmd
}

func BackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Take a database snapshot now and prune old ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			backups := database.NewBackupService(a.db, a.cfg.Backup, a.logger)
			path, err := backups.PerformBackup(cmd.Context())
			if err != nil {
				return err
			}
			backups.CleanupOldBackups()
			fmt.Printf("Backup written to %s\n", path)
			return nil
		},
	}
}

func SheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets mirror of bookings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "resync",
		Short: "Rewrite the bookings sheet from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.cfg.Google.Enabled() {
				return fmt.Errorf("google sheets is not configured")
			}
			ctx := cmd.Context()
			sheets, err := google.NewSheetsService(ctx, a.cfg.Google.GoogleCredentialsFile,
				a.cfg.Google.BookingSpreadSheetID, a.cfg.Google.BookingSheetName, a.logger)
			if err != nil {
				return err
			}

			from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
			to := models.NormalizeDate(time.Now()).AddDate(1, 0, 0)
			bookings, err := a.db.GetBookingsByDateRange(ctx, from, to)
			if err != nil {
				return err
			}
			if err := sheets.ReplaceBookings(ctx, bookings); err != nil {
				return err
			}
			fmt.Printf("Sheet rewritten with %d bookings\n", len(bookings))
			return nil
		},
	})
	return cmd
}
