package api

import (
	"net/http"
	"strings"

	"seminar/internal/models"
)

func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	start, err := s.parseTime("startTime", req.StartTime)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	end, err := s.parseTime("endTime", req.EndTime)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	res := &models.Reservation{
		RoomID:      req.RoomID,
		Nickname:    strings.TrimSpace(req.Nickname),
		StudentName: strings.TrimSpace(req.StudentName),
		StudentID:   req.StudentID,
		Phone:       req.PhoneNumber,
		Purpose:     req.Purpose,
		Start:       start,
		End:         end,
	}
	id, err := s.deps.Reservations.Create(r.Context(), res)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"reservationId": id,
		"message":       "reservation created",
	})
}

func (s *HTTPServer) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	var req cancelReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	err := s.deps.Reservations.Cancel(r.Context(), req.ReservationID, strings.TrimSpace(req.StudentName), req.StudentID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "reservation canceled")
}

func (s *HTTPServer) handleRoomReservations(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseID("roomId", r.PathValue("roomId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	reservations, err := s.deps.Queries.ListUpcomingForRoom(r.Context(), roomID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	list := make([]reservationResponse, 0, len(reservations))
	for _, res := range reservations {
		list = append(list, s.toReservationResponse(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservationList": list})
}

func (s *HTTPServer) handleAvailableRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.deps.Rooms.ListAvailable(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	list := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		list = append(list, toRoomResponse(room))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": list})
}
