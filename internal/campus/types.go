// Package campus holds the data model shared by the map, the detail modal and
// the comment composer, plus the collaborator interfaces they consume.
//
// Upstream payloads are loosely typed: coordinates arrive as numbers or
// strings, ids as numbers or strings, and image references as strings,
// numbers or objects. The types here decode all of those permissively so a
// malformed field degrades to its zero value instead of failing the whole
// response.
package campus

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// StatusPending is the moderation status of every comment created here.
const StatusPending = "pending"

// ID is a location, comment or icon identifier. Upstream sends numbers for
// some resources and strings for others.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	*id = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// Coord is a percentage (0-100) position on the floor-plan image.
type Coord float64

// UnmarshalJSON never fails: numbers are used as is, strings are parsed with
// ParseLeadingFloat, anything else becomes 0.
func (c *Coord) UnmarshalJSON(b []byte) error {
	*c = 0
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		*c = Coord(t)
	case string:
		*c = Coord(ParseLeadingFloat(t))
	}
	return nil
}

// ParseLeadingFloat parses the longest numeric prefix of s after leading
// whitespace ("12.5%" is 12.5). It returns 0 when there is no numeric prefix
// or the value is not finite.
func ParseLeadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		if exp < len(s) && isDigit(s[exp]) {
			for exp < len(s) && isDigit(s[exp]) {
				exp++
			}
			end = exp
		}
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Location is a named place on the campus map.
type Location struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Top         Coord  `json:"top"`
	Left        Coord  `json:"left"`
}

// Rating is a 0-5 star value; 0 means unrated.
type Rating int

// MaxRating is the highest star value.
const MaxRating = 5

// UnmarshalJSON accepts numbers and numeric strings, clamped to 0-5;
// anything else is 0.
func (r *Rating) UnmarshalJSON(b []byte) error {
	*r = 0
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		*r = clampRating(t)
	case string:
		*r = clampRating(ParseLeadingFloat(t))
	}
	return nil
}

func clampRating(f float64) Rating {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= MaxRating:
		return MaxRating
	}
	return Rating(int(f))
}

// Rated reports whether the rating counts towards an average.
func (r Rating) Rated() bool { return r > 0 }

// ImageRef is a raw reference to a comment image. Value is empty when the
// reference was null or could not be read.
type ImageRef struct {
	Value string
}

// imageRefKeys is the order in which object-shaped references are read.
var imageRefKeys = []string{"url", "image_url", "path", "src", "id"}

// UnmarshalJSON accepts a string, a number or an object carrying one of
// url, image_url, path, src or id.
func (r *ImageRef) UnmarshalJSON(b []byte) error {
	r.Value = ""
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	r.Value = refString(v)
	return nil
}

func refString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		for _, k := range imageRefKeys {
			if s := refString(t[k]); s != "" {
				return s
			}
		}
	}
	return ""
}

// MarshalJSON writes the reference as a string, or null when empty.
func (r ImageRef) MarshalJSON() ([]byte, error) {
	if r.Value == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// IsZero reports whether the reference is unresolvable.
func (r ImageRef) IsZero() bool { return r.Value == "" }

// ImageRefs is a list of image references that decodes to nil when the
// upstream value is not an array.
type ImageRefs []ImageRef

// UnmarshalJSON ignores non-array values.
func (rs *ImageRefs) UnmarshalJSON(b []byte) error {
	*rs = nil
	var raw []ImageRef
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	*rs = raw
	return nil
}

// AccessibilityIcon is a tag describing a physical accessibility feature.
// Its image may live under one of several keys.
type AccessibilityIcon struct {
	ID          ID     `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	URL         string `json:"url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Image       string `json:"image,omitempty"`
}

// ImageSource returns the first non-empty of icon_url, url, image_url and
// image, or placeholder.
func (i AccessibilityIcon) ImageSource(placeholder string) string {
	for _, s := range []string{i.IconURL, i.URL, i.ImageURL, i.Image} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return placeholder
}

// DisplayName returns the name, falling back to the description.
func (i AccessibilityIcon) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Description
}

// AccessibilityIcons decodes to nil when the upstream value is not an array.
type AccessibilityIcons []AccessibilityIcon

// UnmarshalJSON ignores non-array values.
func (is *AccessibilityIcons) UnmarshalJSON(b []byte) error {
	*is = nil
	var raw []AccessibilityIcon
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	*is = raw
	return nil
}

// Comment is a visitor review of a location.
type Comment struct {
	UserName    string             `json:"user_name"`
	Rating      Rating             `json:"rating"`
	Comment     string             `json:"comment"`
	Description string             `json:"description,omitempty"`
	CreatedAt   string             `json:"created_at,omitempty"`
	Date        string             `json:"date,omitempty"`
	Status      string             `json:"status,omitempty"`
	Images      ImageRefs          `json:"images,omitempty"`
	Icons       AccessibilityIcons `json:"comment_icons,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp parses created_at, falling back to date.
func (c Comment) Timestamp() (time.Time, bool) {
	for _, raw := range []string{c.CreatedAt, c.Date} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Attachment is an image file picked for a comment.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"-"`
}

// Size returns the file size in bytes.
func (a Attachment) Size() int64 { return int64(len(a.Data)) }

// CommentPayload is what the composer hands to CommentSource.Create.
type CommentPayload struct {
	UserName   string       `json:"user_name"`
	Rating     int          `json:"rating"`
	Comment    string       `json:"comment"`
	CreatedAt  time.Time    `json:"created_at"`
	LocationID ID           `json:"location_id"`
	Status     string       `json:"status"`
	Images     []Attachment `json:"images"`
	IconIDs    []int        `json:"comment_icon_ids,omitempty"`
}
