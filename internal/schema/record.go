package schema

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// currentDateField is the JSON name of the day cursor inside a user record.
const currentDateField = "current_date"

// EncodeUser serialises a profile. The day cursor must be a canonical date.
func EncodeUser(u journal.User) ([]byte, error) {
	if err := ValidateDate(u.CurrentDate); err != nil {
		return nil, fmt.Errorf("user current_date: %w", err)
	}
	if err := validText("image", u.Image, "display_name", u.DisplayName); err != nil {
		return nil, err
	}
	return encodeJSON(u)
}

// DecodeUser parses a stored profile. Unknown fields are ignored.
func DecodeUser(value []byte) (journal.User, error) {
	var u journal.User
	if err := decodeJSON(value, &u); err != nil {
		return journal.User{}, err
	}
	if err := ValidateDate(u.CurrentDate); err != nil {
		return journal.User{}, fmt.Errorf("%w: user current_date: %v", journal.ErrCorruptRecord, err)
	}
	return u, nil
}

// EncodeEntry serialises a journal entry. The same encoding is used for recall records.
func EncodeEntry(e journal.JournalEntry) ([]byte, error) {
	if e.Timestamp < 0 || e.Timestamp > MaxTimestamp {
		return nil, fmt.Errorf("%w: timestamp %d out of range", journal.ErrInvalidInput, e.Timestamp)
	}
	if err := validText("text", e.Text, "qty_units", e.QuantityUnits); err != nil {
		return nil, err
	}
	return encodeJSON(e)
}

// DecodeEntry parses a stored journal entry or recall record. The text and
// timestamp fields must be present.
func DecodeEntry(value []byte) (journal.JournalEntry, error) {
	var e journal.JournalEntry
	if err := decodeJSON(value, &e); err != nil {
		return journal.JournalEntry{}, err
	}
	for _, field := range []string{"text", "timestamp"} {
		if !gjson.GetBytes(value, field).Exists() {
			return journal.JournalEntry{}, fmt.Errorf("%w: entry record has no %s", journal.ErrCorruptRecord, field)
		}
	}
	return e, nil
}

// CurrentDate reads only the day cursor of a stored user record.
func CurrentDate(value []byte) (string, error) {
	if !gjson.ValidBytes(value) {
		return "", fmt.Errorf("%w: user record is not valid JSON", journal.ErrCorruptRecord)
	}
	res := gjson.GetBytes(value, currentDateField)
	if res.Type != gjson.String {
		return "", fmt.Errorf("%w: user record has no %s", journal.ErrCorruptRecord, currentDateField)
	}
	if err := ValidateDate(res.Str); err != nil {
		return "", fmt.Errorf("%w: %s: %v", journal.ErrCorruptRecord, currentDateField, err)
	}
	return res.Str, nil
}

// WithCurrentDate returns a copy of a stored user record with only its day
// cursor replaced. Every other byte, including fields this package does not
// know about, is kept as stored.
func WithCurrentDate(value []byte, date string) ([]byte, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	if _, err := CurrentDate(value); err != nil {
		return nil, err
	}
	out, err := sjson.SetBytes(value, currentDateField, date)
	if err != nil {
		return nil, fmt.Errorf("%w: rewrite %s: %v", journal.ErrCorruptRecord, currentDateField, err)
	}
	return out, nil
}

// validText checks name/value pairs. encoding/json would silently replace
// invalid UTF-8 with U+FFFD, so the stored value would not decode back.
func validText(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if !utf8.ValidString(pairs[i+1]) {
			return fmt.Errorf("%w: %s is not valid UTF-8", journal.ErrInvalidInput, pairs[i])
		}
	}
	return nil
}

func encodeJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode JSON: %v", journal.ErrInvalidInput, err)
	}
	return data, nil
}

func decodeJSON(data []byte, v any) error {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("%w: value is not a JSON object", journal.ErrCorruptRecord)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: failed to decode JSON: %v", journal.ErrCorruptRecord, err)
	}
	return nil
}
