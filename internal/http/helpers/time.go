package helpers

import "time"

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// now es reemplazable en tests.
var now = func() time.Time { return time.Now().UTC() }
