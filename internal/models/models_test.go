package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservation_Overlaps(t *testing.T) {
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	res := &Reservation{Start: base, End: base.Add(time.Hour)}

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"same range", base, base.Add(time.Hour), true},
		{"overlaps tail", base.Add(30 * time.Minute), base.Add(90 * time.Minute), true},
		{"overlaps head", base.Add(-30 * time.Minute), base.Add(30 * time.Minute), true},
		{"contains", base.Add(-time.Hour), base.Add(2 * time.Hour), true},
		{"inside", base.Add(10 * time.Minute), base.Add(20 * time.Minute), true},
		{"abuts after", base.Add(time.Hour), base.Add(2 * time.Hour), false},
		{"abuts before", base.Add(-time.Hour), base, false},
		{"far away", base.Add(5 * time.Hour), base.Add(6 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, res.Overlaps(tt.start, tt.end))
		})
	}
}

func TestReservation_IdentityMatches(t *testing.T) {
	res := &Reservation{StudentName: "Kim", StudentID: 20201234}

	assert.True(t, res.IdentityMatches("Kim", 20201234))
	assert.False(t, res.IdentityMatches("Lee", 20201234))
	assert.False(t, res.IdentityMatches("Kim", 20201235))
	assert.False(t, res.IdentityMatches("kim", 20201234))
}

func TestRoom_Images(t *testing.T) {
	room := &Room{
		ID: 3,
		Images: []RoomImage{
			{Position: 0, Key: "room/3/0.png", URL: "https://img/0.png"},
			{Position: 1, Key: "room/3/1.jpg", URL: "https://img/1.jpg"},
		},
	}

	assert.Equal(t, []string{"https://img/0.png", "https://img/1.jpg"}, room.ImageURLs())
	assert.Equal(t, []string{"room/3/0.png", "room/3/1.jpg"}, room.ImageKeys())
	assert.Equal(t, "room/3/", RoomImagePrefix(room.ID))
	assert.Empty(t, (&Room{}).ImageURLs())
}

func TestImageObjectID(t *testing.T) {
	assert.Equal(t, "room/3/a1-0", ImageObjectID("room/3/a1-0.png"))
	assert.Equal(t, ImageObjectID("room/3/a1-0.jpg"), ImageObjectID("room/3/a1-0.png"))
	assert.Equal(t, "room/3/1", ImageObjectID("room/3/1"))
	assert.Equal(t, "room/3/2.tar", ImageObjectID("room/3/2.tar.gz"))
}
