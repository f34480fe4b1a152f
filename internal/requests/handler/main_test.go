package handler

import "time"

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
