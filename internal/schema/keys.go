package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"pkg.jsn.cam/foodjournal/pkg/journal"
)

// Separator joins the segments of every key.
const Separator = "."

// RecallPrefixLen is the number of runes of an entry's text used as its recall key.
const RecallPrefixLen = 16

// Timestamps are written as fixed-width epoch milliseconds so lexical key
// order within a date is chronological order.
const (
	timestampWidth = 13
	MaxTimestamp   = 9_999_999_999_999
)

// Kind discriminates the record families sharing the flat namespace.
type Kind int

const (
	KindUnknown Kind = iota
	KindUser
	KindEntry
	KindRecall
)

var kindPrefixes = map[Kind]string{
	KindUser:   "user" + Separator,
	KindEntry:  "entry" + Separator,
	KindRecall: "food" + Separator,
}

// Kinds lists every known record kind in prefix order.
var Kinds = []Kind{KindEntry, KindRecall, KindUser}

// Prefix returns the reserved key prefix of the kind, including the separator.
func (k Kind) Prefix() string {
	return kindPrefixes[k]
}

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindEntry:
		return "entry"
	case KindRecall:
		return "recall"
	default:
		return "unknown"
	}
}

// KindOf reports which record family a raw key belongs to.
func KindOf(key []byte) Kind {
	for _, k := range Kinds {
		if strings.HasPrefix(string(key), k.Prefix()) {
			return k
		}
	}
	return KindUnknown
}

// ValidateUserID checks that id can be embedded in a key without ambiguity.
func ValidateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty user id", journal.ErrInvalidInput)
	}
	if strings.Contains(id, Separator) {
		return fmt.Errorf("%w: user id %q contains %q", journal.ErrInvalidInput, id, Separator)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%w: user id is not valid UTF-8", journal.ErrInvalidInput)
	}
	return nil
}

// ValidateDate checks that date is a real calendar date in zero-padded ISO form.
func ValidateDate(date string) error {
	d, err := journal.ParseDate(date)
	if err != nil {
		return err
	}
	// time.Parse accepts some non-canonical spellings; keys must be canonical.
	if journal.FormatDate(d) != date {
		return fmt.Errorf("%w: date %q is not zero-padded ISO form", journal.ErrInvalidInput, date)
	}
	return nil
}

// UserKey returns "user.<id>".
func UserKey(userID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	return KindUser.Prefix() + userID, nil
}

// UserIDFromKey recovers the user id from a stored user key.
func UserIDFromKey(key []byte) (string, error) {
	prefix := KindUser.Prefix()
	if len(key) <= len(prefix) || string(key[:len(prefix)]) != prefix {
		return "", fmt.Errorf("%w: %q is not a user key", journal.ErrCorruptRecord, key)
	}
	id := string(key[len(prefix):])
	if err := ValidateUserID(id); err != nil {
		return "", fmt.Errorf("%w: key %q: %v", journal.ErrCorruptRecord, key, err)
	}
	return id, nil
}

// EntryPrefix returns "entry.<id>.", the scan prefix of a user's journal.
func EntryPrefix(userID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	return KindEntry.Prefix() + userID + Separator, nil
}

// EntryKey returns "entry.<id>.<date>.<timestamp>".
func EntryKey(userID, date string, timestamp int64) (string, error) {
	prefix, err := EntryPrefix(userID)
	if err != nil {
		return "", err
	}
	id, err := EntryID(date, timestamp)
	if err != nil {
		return "", err
	}
	return prefix + id, nil
}

// EntryID returns the client-facing id "<date>.<timestamp>".
func EntryID(date string, timestamp int64) (string, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	if timestamp < 0 || timestamp > MaxTimestamp {
		return "", fmt.Errorf("%w: timestamp %d out of range", journal.ErrInvalidInput, timestamp)
	}
	return date + Separator + fmt.Sprintf("%0*d", timestampWidth, timestamp), nil
}

// ParseEntryID splits an entry id into its date and timestamp.
func ParseEntryID(id string) (string, int64, error) {
	date, ts, ok := strings.Cut(id, Separator)
	if !ok || len(ts) != timestampWidth {
		return "", 0, fmt.Errorf("%w: malformed entry id %q", journal.ErrInvalidInput, id)
	}
	if err := ValidateDate(date); err != nil {
		return "", 0, err
	}
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("%w: malformed entry timestamp %q", journal.ErrInvalidInput, ts)
	}
	return date, n, nil
}

// EntryIDFromKey strips "entry.<id>." from a stored entry key.
func EntryIDFromKey(key []byte, userID string) (string, error) {
	prefix, err := EntryPrefix(userID)
	if err != nil {
		return "", err
	}
	if len(key) <= len(prefix) || string(key[:len(prefix)]) != prefix {
		return "", fmt.Errorf("%w: %q is not an entry key for %q", journal.ErrCorruptRecord, key, userID)
	}
	id := string(key[len(prefix):])
	if _, _, err := ParseEntryID(id); err != nil {
		return "", fmt.Errorf("%w: key %q: %v", journal.ErrCorruptRecord, key, err)
	}
	return id, nil
}

// RecallKey returns "food." followed by the first RecallPrefixLen runes of the
// NFC-normalised text. Shorter text is rejected rather than padded.
func RecallKey(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: recall text is not valid UTF-8", journal.ErrInvalidInput)
	}
	text = norm.NFC.String(text)
	if n := utf8.RuneCountInString(text); n < RecallPrefixLen {
		return "", fmt.Errorf("%w: recall text has %d characters, need at least %d",
			journal.ErrInvalidInput, n, RecallPrefixLen)
	}

	end, runes := 0, 0
	for i := range text {
		if runes == RecallPrefixLen {
			end = i
			break
		}
		runes++
		end = len(text)
	}
	return KindRecall.Prefix() + text[:end], nil
}
