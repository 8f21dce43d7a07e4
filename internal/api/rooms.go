package api

import (
	"context"
	"fmt"
	"net/http"

	"gidvion/internal/domain"
)

// CreateRoom opens a new ephemeral room and returns its join code.
func (c *Client) CreateRoom(ctx context.Context, name string) (*domain.RoomInfo, error) {
	in := struct {
		Name string `json:"name"`
	}{Name: name}

	var out domain.RoomInfo
	if err := c.doJSON(ctx, http.MethodPost, "/temp-rooms/create", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InviteToRoom emails a join code to a prospective member.
func (c *Client) InviteToRoom(ctx context.Context, roomID, email string) error {
	in := struct {
		RoomID string `json:"room_id"`
		Email  string `json:"email"`
	}{RoomID: roomID, Email: email}
	return c.doJSON(ctx, http.MethodPost, "/temp-rooms/invite", in, nil)
}

// JoinRoom redeems a join code for room membership.
func (c *Client) JoinRoom(ctx context.Context, code string) (*domain.RoomInfo, error) {
	in := struct {
		Code string `json:"code"`
	}{Code: code}

	var out domain.RoomInfo
	if err := c.doJSON(ctx, http.MethodPost, "/temp-rooms/join", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RoomInfo resolves a join code without joining.
func (c *Client) RoomInfo(ctx context.Context, code string) (*domain.RoomInfo, error) {
	var out domain.RoomInfo
	if err := c.doJSON(ctx, http.MethodGet, "/temp-rooms/"+code+"/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendRoomMessage posts a message over REST. Live delivery to other
// members happens via the room websocket.
func (c *Client) SendRoomMessage(ctx context.Context, roomID string, msg domain.RoomMessage) error {
	return c.doJSON(ctx, http.MethodPost, "/temp-rooms/"+roomID+"/messages", msg, nil)
}

// RoomMessages pages through a room's recent history.
func (c *Client) RoomMessages(ctx context.Context, roomID string, limit, offset int) ([]domain.RoomMessage, error) {
	path := fmt.Sprintf("/temp-rooms/%s/messages?limit=%d&offset=%d", roomID, limit, offset)
	var out []domain.RoomMessage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
