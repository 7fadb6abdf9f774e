package card

import "errors"

// Module errors.
var ErrCardNotFound = errors.New("card not found")
