package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ChannelHostaway is the provenance tag of reviews pulled from the booking channel.
const ChannelHostaway = "Hostaway"

type Category struct {
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
}

// RawChannelReview is the upstream record shape. It is also the shape persisted
// in the snapshot, with the approval flag folded in.
//
// A decoded record keeps its source JSON. Encoding it again writes that source
// back with only "approved" replaced, so fields this type does not declare
// survive a store round trip. Other typed fields are read-only views.
type RawChannelReview struct {
	ID             int64      `json:"id"`
	Type           string     `json:"type,omitempty"`
	Status         string     `json:"status"`
	Rating         *float64   `json:"rating"`
	PublicReview   string     `json:"publicReview"`
	ReviewCategory []Category `json:"reviewCategory,omitempty"`
	SubmittedAt    string     `json:"submittedAt"`
	GuestName      string     `json:"guestName"`
	ListingName    string     `json:"listingName"`
	Approved       *bool      `json:"approved,omitempty"`

	src json.RawMessage
}

func (r *RawChannelReview) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	type plain RawChannelReview
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = RawChannelReview(p)
	r.src = append(json.RawMessage(nil), b...)
	return nil
}

func (r RawChannelReview) MarshalJSON() ([]byte, error) {
	type plain RawChannelReview
	if len(r.src) == 0 {
		return json.Marshal(plain(r))
	}
	if r.Approved == nil {
		return r.src, nil
	}
	return setMember(r.src, "approved", *r.Approved)
}

// setMember rewrites one member of a JSON object, keeping the order and values
// of every other member. A missing member is appended.
func setMember(obj []byte, key string, v any) ([]byte, error) {
	val, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(obj))
	if t, err := dec.Token(); err != nil {
		return nil, err
	} else if t != json.Delim('{') {
		return nil, fmt.Errorf("review record is not an object")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	n, found := 0, false
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := t.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if name == key {
			raw, found = val, true
		}
		writeMember(&buf, n, name, raw)
		n++
	}
	if !found {
		writeMember(&buf, n, key, val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, n int, name string, val []byte) {
	if n > 0 {
		buf.WriteByte(',')
	}
	k, _ := json.Marshal(name)
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
}

// Snapshot is the persisted document: {"result": [...]}.
type Snapshot struct {
	Result []RawChannelReview `json:"result"`
}

type NormalizedReview struct {
	ID         int64      `json:"id"`
	Property   string     `json:"property"`
	Reviewer   string     `json:"reviewer"`
	Rating     *float64   `json:"rating"` // null when neither overall nor category rating exists
	Categories []Category `json:"categories"`
	Channel    string     `json:"channel"`
	Body       string     `json:"review"`
	Date       time.Time  `json:"date"`
	Status     string     `json:"status"`
	Approved   bool       `json:"approved"`
}

// RatingOrZero is the sort key used for reviews without a rating.
func (r NormalizedReview) RatingOrZero() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

func (r NormalizedReview) HasCategory(name string) bool {
	for _, c := range r.Categories {
		if c.Category == name {
			return true
		}
	}
	return false
}

type PropertyAggregate struct {
	Property      string  `json:"property"`
	AverageRating float64 `json:"averageRating"`
	ApprovedCount int     `json:"approvedCount"`
	ReviewCount   int     `json:"reviewCount"`
}

// Facets lists distinct filter values in first-seen order.
type Facets struct {
	Properties []string `json:"properties"`
	Categories []string `json:"categories"`
	Channels   []string `json:"channels"`
}
