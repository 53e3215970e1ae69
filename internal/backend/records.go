package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"hydrolog/internal/hydration"
)

// ListOptions narrows a record listing. Date, when set, is appended as a
// YYYY-MM-DD path suffix.
type ListOptions struct {
	Limit int
	Date  string
}

func listPath(base string, opts ListOptions) string {
	p := base
	if opts.Date != "" {
		p += "/" + url.PathEscape(opts.Date)
	}
	if opts.Limit > 0 {
		p += "?limit=" + strconv.Itoa(opts.Limit)
	}
	return p
}

func userPath(userID string) string {
	return "/usuarios/" + url.PathEscape(userID)
}

// ListWater returns the user's intake records.
func (c *Client) ListWater(ctx context.Context, userID string, opts ListOptions) ([]hydration.WaterEvent, error) {
	body, err := c.do(ctx, "GET", listPath("/controles/usuario/"+url.PathEscape(userID), opts), nil)
	if err != nil {
		return nil, err
	}
	var recs []waterRecord
	if err := decodeItems(body, &recs); err != nil {
		return nil, err
	}
	out := make([]hydration.WaterEvent, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.event(c.loc))
	}
	return out, nil
}

// ListUrination returns the user's urination records.
func (c *Client) ListUrination(ctx context.Context, userID string, opts ListOptions) ([]hydration.UrinationEvent, error) {
	body, err := c.do(ctx, "GET", listPath("/controles/usuario/"+url.PathEscape(userID)+"/urina", opts), nil)
	if err != nil {
		return nil, err
	}
	var recs []urineRecord
	if err := decodeItems(body, &recs); err != nil {
		return nil, err
	}
	out := make([]hydration.UrinationEvent, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.event(c.loc))
	}
	return out, nil
}

// GetUser fetches the backend user record.
func (c *Client) GetUser(ctx context.Context, userID string) (User, error) {
	body, err := c.do(ctx, "GET", userPath(userID), nil)
	if err != nil {
		return User{}, err
	}
	var u User
	err = json.Unmarshal(body, &u)
	return u, err
}

// UpdateUser replaces the user's profile fields.
func (c *Client) UpdateUser(ctx context.Context, userID string, in UserInput) (User, error) {
	body, err := c.do(ctx, "PUT", userPath(userID), in)
	if err != nil {
		return User{}, err
	}
	var u User
	err = json.Unmarshal(body, &u)
	return u, err
}

// CreateUser registers a new backend user.
func (c *Client) CreateUser(ctx context.Context, in UserInput) (User, error) {
	body, err := c.do(ctx, "POST", "/usuarios", in)
	if err != nil {
		return User{}, err
	}
	var u User
	err = json.Unmarshal(body, &u)
	return u, err
}

// CreateWater stores an intake record and returns the backend's answer verbatim.
func (c *Client) CreateWater(ctx context.Context, in WaterInput) (json.RawMessage, error) {
	body, err := c.do(ctx, "POST", "/controles", in)
	return json.RawMessage(body), err
}

// CreateUrination stores a urination record and returns the backend's answer verbatim.
func (c *Client) CreateUrination(ctx context.Context, in UrineInput) (json.RawMessage, error) {
	body, err := c.do(ctx, "POST", "/controles", in)
	return json.RawMessage(body), err
}

// DeleteRecord removes one of the user's records.
func (c *Client) DeleteRecord(ctx context.Context, userID, recordID string) error {
	_, err := c.do(ctx, "DELETE", "/controles/"+url.PathEscape(recordID)+"?usuarioId="+url.QueryEscape(userID), nil)
	return err
}

// WaterEvents implements hydration.Upstream.
func (c *Client) WaterEvents(ctx context.Context, userID string) ([]hydration.WaterEvent, error) {
	return c.ListWater(ctx, userID, ListOptions{Limit: c.WaterLimit})
}

// UrinationEvents implements hydration.Upstream.
func (c *Client) UrinationEvents(ctx context.Context, userID string) ([]hydration.UrinationEvent, error) {
	return c.ListUrination(ctx, userID, ListOptions{Limit: c.UrineLimit})
}

// Profile implements hydration.Upstream.
func (c *Client) Profile(ctx context.Context, userID string) (hydration.Profile, error) {
	u, err := c.GetUser(ctx, userID)
	if err != nil {
		return hydration.Profile{}, err
	}
	return u.Profile(), nil
}
