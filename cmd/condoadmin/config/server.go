package config

import (
	"github.com/brito101/medicaodigitalx"
)

var defaultServerConf = medicaodigitalx.ServerConf{
	Port: 7672,
}
