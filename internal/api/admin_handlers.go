package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"seminar/internal/domain"
	"seminar/internal/models"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	multipartMemory  = 8 << 20
	imagesFormField  = "images"
	maxImagesPerRoom = 10
)

func (s *HTTPServer) handleAdminAccess(w http.ResponseWriter, r *http.Request) {
	var req adminAccessRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.deps.Admin.Authenticate(req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "access granted")
}

func (s *HTTPServer) handleAdminRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.deps.Rooms.ListAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	list := make([]adminRoomResponse, 0, len(rooms))
	for _, room := range rooms {
		list = append(list, s.toAdminRoomResponse(room))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": list})
}

func (s *HTTPServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	req, files, err := s.readRoomRequest(w, r)
	if err != nil {
		s.writeRequestError(w, r, err)
		return
	}

	room, err := s.deps.Rooms.Create(r.Context(), req.toModel(), files)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.toAdminRoomResponse(room))
}

func (s *HTTPServer) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	req, files, err := s.readRoomRequest(w, r)
	if err == nil && req.ID <= 0 {
		err = fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	if err != nil {
		s.writeRequestError(w, r, err)
		return
	}

	room, err := s.deps.Rooms.Update(r.Context(), req.toModel(), files)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toAdminRoomResponse(room))
}

// handleDeleteRoom takes the id from the path, or from a JSON body on the bare route.
func (s *HTTPServer) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	var (
		roomID int64
		err    error
	)
	if raw := r.PathValue("roomId"); raw != "" {
		roomID, err = parseID("roomId", raw)
	} else {
		var req roomIDRequest
		err = decodeJSON(r, &req)
		roomID = req.RoomID
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.deps.Rooms.Delete(r.Context(), roomID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "room deleted")
}

func (s *HTTPServer) handleAdminReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.deps.Queries.ListAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	list := make([]adminReservationResponse, 0, len(reservations))
	for _, res := range reservations {
		list = append(list, s.toAdminReservationResponse(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

func (s *HTTPServer) handleForceDeleteReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationIDRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.deps.Reservations.ForceDelete(r.Context(), req.ReservationID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "reservation deleted")
}

func (s *HTTPServer) handleDownloadLog(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := s.deps.Admin.ExportAccessLog(r.Context(), &buf)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// readRoomRequest accepts multipart form fields plus "images" files, or a
// JSON body without images.
func (s *HTTPServer) readRoomRequest(w http.ResponseWriter, r *http.Request) (roomRequest, []models.ImageFile, error) {
	limit := s.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = models.DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if !isMultipart(r) {
		var req roomRequest
		err := decodeJSON(r, &req)
		return req, nil, err
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return roomRequest{}, nil, err
	}

	req := roomRequest{
		Name:        r.FormValue("name"),
		Location:    r.FormValue("location"),
		Equipment:   r.FormValue("equipment"),
		Description: r.FormValue("description"),
	}
	if raw := r.FormValue("id"); raw != "" {
		id, err := parseID("id", raw)
		if err != nil {
			return roomRequest{}, nil, err
		}
		req.ID = id
	}
	if raw := strings.TrimSpace(r.FormValue("capacity")); raw != "" {
		capacity, err := strconv.Atoi(raw)
		if err != nil {
			return roomRequest{}, nil, fmt.Errorf("%w: capacity %q", domain.ErrValidation, raw)
		}
		req.Capacity = capacity
	}
	if raw := strings.TrimSpace(r.FormValue("available")); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return roomRequest{}, nil, fmt.Errorf("%w: available %q", domain.ErrValidation, raw)
		}
		req.Available = &available
	}
	if err := validateStruct(&req); err != nil {
		return roomRequest{}, nil, err
	}

	files, err := readImages(r)
	if err != nil {
		return roomRequest{}, nil, err
	}
	return req, files, nil
}

func readImages(r *http.Request) ([]models.ImageFile, error) {
	headers := r.MultipartForm.File[imagesFormField]
	if len(headers) > maxImagesPerRoom {
		return nil, fmt.Errorf("%w: at most %d images", domain.ErrValidation, maxImagesPerRoom)
	}

	files := make([]models.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
		}
		if !strings.HasPrefix(http.DetectContentType(data), "image/") {
			return nil, fmt.Errorf("%w: %s is not an image", domain.ErrValidation, fh.Filename)
		}
		files = append(files, models.ImageFile{Name: fh.Filename, Size: fh.Size, Data: data})
	}
	return files, nil
}

// writeRequestError reports oversized bodies as 413 and everything else
// through the common mapping. Multipart parse failures are client errors.
func (s *HTTPServer) writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if !errors.Is(err, domain.ErrValidation) && isMultipart(r) && r.MultipartForm == nil {
		err = fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	s.writeServiceError(w, r, err)
}
