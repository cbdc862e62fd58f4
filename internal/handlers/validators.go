package handlers

import (
	"sync"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

func init() {
	RegisterValidators()
}

// RegisterValidators adds the domain enum checks used in binding tags to gin's
// validator engine.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		enums := map[string]func(string) bool{
			"product_status": models.IsValidProductStatus,
			"payment_method": models.IsValidPaymentMethod,
			"order_status":   models.IsValidOrderStatus,
		}
		for tag, valid := range enums {
			valid := valid
			if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return valid(fl.Field().String())
			}); err != nil {
				utils.LogError(err, "Failed to register binding validator", map[string]interface{}{"tag": tag})
			}
		}
	})
}
