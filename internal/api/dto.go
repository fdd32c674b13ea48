package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"seminar/internal/domain"
	"seminar/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	zonelessLayout = "2006-01-02T15:04:05"
	minuteLayout   = "2006-01-02T15:04"
)

var (
	phoneRE  = regexp.MustCompile(models.PhonePattern)
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("krphone", func(fl validator.FieldLevel) bool {
		return phoneRE.MatchString(fl.Field().String())
	})
	return v
}

type createReservationRequest struct {
	RoomID      int64  `json:"roomId" validate:"required,gt=0"`
	Nickname    string `json:"nickname" validate:"required,max=50"`
	StudentName string `json:"studentName" validate:"required,max=50"`
	StudentID   int64  `json:"studentId" validate:"required,gt=0"`
	PhoneNumber string `json:"phoneNumber" validate:"required,krphone"`
	Purpose     string `json:"purpose" validate:"required,max=500"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
}

type cancelReservationRequest struct {
	ReservationID int64  `json:"reservationId" validate:"required,gt=0"`
	StudentName   string `json:"studentName" validate:"required"`
	StudentID     int64  `json:"studentId" validate:"required,gt=0"`
}

type reservationIDRequest struct {
	ReservationID int64 `json:"reservationId" validate:"required,gt=0"`
}

type roomIDRequest struct {
	RoomID int64 `json:"roomId" validate:"required,gt=0"`
}

type adminAccessRequest struct {
	Password string `json:"password" validate:"required"`
}

type roomRequest struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required,max=100"`
	Location    string `json:"location" validate:"required,max=200"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
	Equipment   string `json:"equipment" validate:"max=500"`
	Description string `json:"description" validate:"max=2000"`
	Available   *bool  `json:"available" validate:"required"`
}

func (r roomRequest) toModel() *models.Room {
	return &models.Room{
		ID:          r.ID,
		Name:        strings.TrimSpace(r.Name),
		Location:    strings.TrimSpace(r.Location),
		Capacity:    r.Capacity,
		Equipment:   r.Equipment,
		Description: r.Description,
		Available:   *r.Available,
	}
}

type reservationResponse struct {
	ID        int64  `json:"id"`
	RoomID    int64  `json:"roomId"`
	Nickname  string `json:"nickname"`
	Purpose   string `json:"purpose"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	CreatedAt string `json:"createdAt"`
}

type adminReservationResponse struct {
	ID          int64  `json:"id"`
	RoomID      int64  `json:"roomId"`
	RoomName    string `json:"roomName"`
	Nickname    string `json:"nickname"`
	StudentName string `json:"studentName"`
	StudentID   int64  `json:"studentId"`
	PhoneNumber string `json:"phoneNumber"`
	Purpose     string `json:"purpose"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	CreatedAt   string `json:"createdAt"`
}

type roomResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Capacity    int      `json:"capacity"`
	Equipment   string   `json:"equipment"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

type adminRoomResponse struct {
	roomResponse
	Available bool   `json:"available"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (s *HTTPServer) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format(zonelessLayout)
}

func (s *HTTPServer) toReservationResponse(res *models.Reservation) reservationResponse {
	return reservationResponse{
		ID:        res.ID,
		RoomID:    res.RoomID,
		Nickname:  res.Nickname,
		Purpose:   res.Purpose,
		StartTime: s.formatTime(res.Start),
		EndTime:   s.formatTime(res.End),
		CreatedAt: s.formatTime(res.CreatedAt),
	}
}

func (s *HTTPServer) toAdminReservationResponse(res *models.ReservationWithRoom) adminReservationResponse {
	return adminReservationResponse{
		ID:          res.ID,
		RoomID:      res.RoomID,
		RoomName:    res.RoomName,
		Nickname:    res.Nickname,
		StudentName: res.StudentName,
		StudentID:   res.StudentID,
		PhoneNumber: res.Phone,
		Purpose:     res.Purpose,
		StartTime:   s.formatTime(res.Start),
		EndTime:     s.formatTime(res.End),
		CreatedAt:   s.formatTime(res.CreatedAt),
	}
}

func toRoomResponse(room *models.Room) roomResponse {
	return roomResponse{
		ID:          room.ID,
		Name:        room.Name,
		Location:    room.Location,
		Capacity:    room.Capacity,
		Equipment:   room.Equipment,
		Description: room.Description,
		Images:      room.ImageURLs(),
	}
}

func (s *HTTPServer) toAdminRoomResponse(room *models.Room) adminRoomResponse {
	return adminRoomResponse{
		roomResponse: toRoomResponse(room),
		Available:    room.Available,
		CreatedAt:    s.formatTime(room.CreatedAt),
		UpdatedAt:    s.formatTime(room.UpdatedAt),
	}
}

// parseTime accepts RFC 3339 or a zone-less local timestamp in the
// configured location.
func (s *HTTPServer) parseTime(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{zonelessLayout, minuteLayout} {
		if t, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s %q is not a timestamp", domain.ErrValidation, field, raw)
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", domain.ErrValidation)
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}
			return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func parseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrValidation, field, raw)
	}
	return id, nil
}
