package traci

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "traci")
