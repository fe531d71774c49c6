package service

import "errors"

var ErrNoData = errors.New("error no data")
