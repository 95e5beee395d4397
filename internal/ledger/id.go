package ledger

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

const idStampLayout = "20060102150405.000"

// NewDatedID builds an id from a business date: the date shifted by offset
// milliseconds formatted as yyyyMMddHHmmssSSS, an underscore and a twelve
// character random hex suffix. Ids of records sharing one date stay distinct
// and sort in offset order.
func NewDatedID(date time.Time, offset int) string {
	t := date.Add(time.Duration(offset) * time.Millisecond)
	stamp := strings.Replace(t.Format(idStampLayout), ".", "", 1)
	u := uuid.New()
	return stamp + "_" + hex.EncodeToString(u[10:])
}

// NewID returns a time-ordered random id for user-created entities.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
