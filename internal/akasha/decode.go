package akasha

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ScriptPrefix precedes the JSON document in the published script.
const ScriptPrefix = "var static_abyss_total ="

// ErrMalformed reports a payload that is not the expected statistics document.
var ErrMalformed = errors.New("malformed akasha payload")

// Decode parses the statistics script. The variable assignment and a trailing semicolon
// are optional.
func Decode(script []byte) (*Data, error) {
	body := bytes.TrimSpace(script)
	body = bytes.TrimPrefix(body, []byte(ScriptPrefix))
	body = bytes.TrimSpace(body)
	body = bytes.TrimSuffix(body, []byte(";"))

	var d Data
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the fields the statistics image depends on.
func (d *Data) Validate() error {
	switch {
	case d.ScheduleVersionDesc == "":
		return fmt.Errorf("%w: missing schedule_version_desc", ErrMalformed)
	case len(d.Characters) == 0:
		return fmt.Errorf("%w: empty character_used_list", ErrMalformed)
	}
	return nil
}

// CacheBuster returns the value of the v query parameter: the first seven digits of
// the unix time, so the CDN copy changes every 1000 seconds.
func CacheBuster(now time.Time) string {
	s := strconv.FormatInt(now.Unix(), 10)
	if len(s) > 7 {
		s = s[:7]
	}
	return s
}
