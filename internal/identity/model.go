package identity

import (
    "bytes"
    "encoding/json"
    "errors"
    "strings"
)

// PlaceholderAadhar is stored when signup omits a national ID.
const PlaceholderAadhar = "0000-0000-0000"

// Identity is the single user profile tracked by a session. The JSON form is
// the durable slot record.
type Identity struct {
    ID           string `json:"id"`
    Name         string `json:"name"`
    Email        string `json:"email"`
    Phone        string `json:"phone"`
    PhoneNumber  string `json:"phoneNumber"`
    AadharNumber string `json:"aadharNumber"`
    Verified     bool   `json:"verified"`
}

// ProfileInput carries the fields collected by the signup form.
type ProfileInput struct {
    Name         string
    Email        string
    Phone        string
    AadharNumber string // optional
}

// FieldError describes one rejected signup field.
type FieldError struct {
    Field   string `json:"field"`
    Message string `json:"message"`
}

// ValidationError lists every field that failed boundary validation.
type ValidationError struct {
    Fields []FieldError
}

func (e *ValidationError) Error() string {
    names := make([]string, 0, len(e.Fields))
    for _, f := range e.Fields {
        names = append(names, f.Field)
    }
    return "missing " + strings.Join(names, ", ")
}

// Normalize trims every field and applies the national-ID placeholder.
func (p ProfileInput) Normalize() ProfileInput {
    out := ProfileInput{
        Name:         strings.TrimSpace(p.Name),
        Email:        strings.TrimSpace(p.Email),
        Phone:        strings.TrimSpace(p.Phone),
        AadharNumber: strings.TrimSpace(p.AadharNumber),
    }
    if out.AadharNumber == "" {
        out.AadharNumber = PlaceholderAadhar
    }
    return out
}

// Validate reports missing required fields. Formats are not checked.
func (p ProfileInput) Validate() error {
    var fields []FieldError
    if strings.TrimSpace(p.Name) == "" {
        fields = append(fields, FieldError{Field: "name", Message: "name is required"})
    }
    if strings.TrimSpace(p.Email) == "" {
        fields = append(fields, FieldError{Field: "email", Message: "email is required"})
    }
    if strings.TrimSpace(p.Phone) == "" {
        fields = append(fields, FieldError{Field: "phone", Message: "phone is required"})
    }
    if len(fields) > 0 {
        return &ValidationError{Fields: fields}
    }
    return nil
}

// Record serializes the identity for the durable slot.
func (i Identity) Record() ([]byte, error) {
    return json.Marshal(i)
}

// ParseRecord decodes a durable slot record. Any JSON object is accepted as
// is; a JSON null is an empty slot.
func ParseRecord(data []byte) (Identity, error) {
    if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
        return Identity{}, errors.New("record is null")
    }
    var id Identity
    if err := json.Unmarshal(data, &id); err != nil {
        return Identity{}, err
    }
    return id, nil
}
