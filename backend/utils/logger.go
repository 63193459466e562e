package utils

import (
	"log"
	"os"
)

// InitLogger builds the process logger used for request logging and for
// grading-anomaly reports.
func InitLogger() *log.Logger {
	return log.New(os.Stdout, "[sprachwerk] ", log.LstdFlags|log.LUTC)
}
