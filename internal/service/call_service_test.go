package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vconnect/portal-backend/internal/model"
)

func TestRoomSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CSE 3A", "CSE-3A"},
		{"  Project -- Team!! ", "Project-Team"},
		{"Café Räumlich", "Caf-R-umlich"},
		{"!!!", "Group"},
		{"", "Group"},
		{strings.Repeat("a", 60), strings.Repeat("a", 40)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoomSlug(tt.in), "input %q", tt.in)
	}
}

func TestRoomName(t *testing.T) {
	assert.Equal(t, "VConnect-CSE-3A-ab12cd34", RoomName("CSE 3A", "ab12cd34"))
	assert.Len(t, randomRoomSuffix(), 8)
}

func TestMeetingURL(t *testing.T) {
	assert.Equal(t,
		"https://meet.jit.si/VConnect-CSE-3A-x",
		MeetingURL("https://meet.jit.si/", "VConnect-CSE-3A-x", model.CallTypeVideo))
	assert.Equal(t,
		"https://meet.jit.si/room#config.startWithVideoMuted=true&config.startAudioOnly=true",
		MeetingURL("https://meet.jit.si", "room", model.CallTypeAudio))
}
