package domain

import (
	"context"
	"io"
	"time"

	"hotelsite/internal/models"
	"hotelsite/internal/pricing"
)

type RoomRepository interface {
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetActiveRooms(ctx context.Context) ([]*models.Room, error)
	GetAllRooms(ctx context.Context) ([]*models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	UpdateRoom(ctx context.Context, room *models.Room) error
	UpsertRoom(ctx context.Context, room *models.Room) error
}

type AvailabilityRepository interface {
	GetAvailability(ctx context.Context, roomID int64, date time.Time) (*models.RoomAvailability, error)
	ListAvailability(ctx context.Context, roomID int64, from, to time.Time) ([]*models.RoomAvailability, error)
	UpsertAvailabilityRange(ctx context.Context, roomID int64, from, to time.Time, slots int, specialPrice *int64) error
}

type BookingRepository interface {
	CreateBookingWithReservation(ctx context.Context, booking *models.Booking) error
	CancelBooking(ctx context.Context, id int64, reason string) (*models.CancelledBooking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	GetUserCancelledBookings(ctx context.Context, userID int64) ([]*models.CancelledBooking, error)
	GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error)
	GetCancelledBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.CancelledBooking, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, name, phone string) error
	UpdateUserRole(ctx context.Context, id int64, role string) error
	ArchiveUser(ctx context.Context, id int64) (*models.DeletedUser, error)
	GetDeletedUsers(ctx context.Context) ([]*models.DeletedUser, error)
}

type HotelRepository interface {
	CreateHotel(ctx context.Context, hotel *models.Hotel) error
	UpdateHotel(ctx context.Context, hotel *models.Hotel) error
	GetHotel(ctx context.Context, id int64) (*models.Hotel, error)
	ListHotels(ctx context.Context) ([]*models.Hotel, error)
	DeleteHotel(ctx context.Context, id int64) error
}

// Repository is the full persistence surface; *database.DB satisfies it.
type Repository interface {
	RoomRepository
	AvailabilityRepository
	BookingRepository
	UserRepository
	HotelRepository
}

// SessionRepository stores login sessions. GetSession returns nil, nil for an
// unknown token.
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
	DeleteUserSessions(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error
}

type BookingService interface {
	ValidateStayDates(checkIn, checkOut time.Time) error
	Quote(ctx context.Context, req models.StayRequest) (*pricing.Quote, error)
	CreateBooking(ctx context.Context, session *models.Session, req models.StayRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, session *models.Session, bookingID int64, reason string) (*models.CancelledBooking, error)
	GetBooking(ctx context.Context, session *models.Session, bookingID int64) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error)
	GetCancelledBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.CancelledBooking, error)
	GetAvailability(ctx context.Context, roomID int64, from, to time.Time) ([]*models.DayAvailability, error)
	SetAvailability(ctx context.Context, roomID int64, from, to time.Time, slots int, specialPrice *int64) error
}

type RoomService interface {
	ListRooms(ctx context.Context, filter models.RoomFilter) ([]*models.Room, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetAllRooms(ctx context.Context) ([]*models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	UpdateRoom(ctx context.Context, room *models.Room) error
	PatchRoom(ctx context.Context, id int64, patch *models.RoomPatch) (*models.Room, error)
}

type UserService interface {
	Register(ctx context.Context, reg models.Registration) (*models.User, *models.Session, error)
	Login(ctx context.Context, email, password string) (*models.User, *models.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.Session, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	GetDeletedUsers(ctx context.Context) ([]*models.DeletedUser, error)
	UpdateProfile(ctx context.Context, id int64, name, phone string) (*models.User, error)
	DeleteAccount(ctx context.Context, id int64) (*models.DeletedUser, error)
}

type HotelService interface {
	CreateHotel(ctx context.Context, hotel *models.Hotel) error
	UpdateHotel(ctx context.Context, id int64, patch *models.HotelPatch) (*models.Hotel, error)
	GetHotel(ctx context.Context, id int64) (*models.Hotel, error)
	ListHotels(ctx context.Context) ([]*models.Hotel, error)
	DeleteHotel(ctx context.Context, id int64) error
	UploadLogo(ctx context.Context, id int64, filename string, src io.Reader) (*models.Hotel, error)
}
