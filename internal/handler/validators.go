package handler

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/agendafacil/booking-api/internal/model"
	"github.com/agendafacil/booking-api/internal/schedule"
)

// RegisterValidators installs the custom binding rules used by request
// structs. Call once at startup before any request is served.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// timestr accepts canonical "HH:MM" or "H:MM AM/PM"
	v.RegisterValidation("timestr", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseClock(fl.Field().String())
		return err == nil
	})

	// datestr accepts "YYYY-MM-DD"
	v.RegisterValidation("datestr", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(model.DateLayout, fl.Field().String())
		return err == nil
	})
}
