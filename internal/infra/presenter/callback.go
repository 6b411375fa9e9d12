package presenter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KasumiMercury/primind-reminder-scheduler/internal/domain"
)

const (
	callbackPrefix = "rem"
	// Telegram rejects callback data longer than 64 bytes.
	maxCallbackData = 64
)

var ErrInvalidCallback = errors.New("invalid callback data")

// EncodeCallback packs an action on an item into inline button data of the
// form "rem:<kind>:<item_id>:<payload>".
func EncodeCallback(itemID int64, action domain.Action) (string, error) {
	data := strings.Join([]string{
		callbackPrefix,
		action.Kind.String(),
		strconv.FormatInt(itemID, 10),
		action.Payload,
	}, ":")
	if len(data) > maxCallbackData {
		return "", fmt.Errorf("%w: %d bytes", ErrInvalidCallback, len(data))
	}
	return data, nil
}

func ParseCallback(data string) (int64, domain.ActionKind, string, error) {
	// telebot prefixes unique-less callback data with \f
	data = strings.TrimPrefix(strings.TrimSpace(data), "\f")

	parts := strings.SplitN(data, ":", 4)
	if len(parts) != 4 || parts[0] != callbackPrefix {
		return 0, "", "", ErrInvalidCallback
	}

	itemID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || itemID <= 0 {
		return 0, "", "", ErrInvalidCallback
	}

	return itemID, domain.ActionKind(parts[1]), parts[3], nil
}
