package render

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "render")
