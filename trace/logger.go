package trace

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "trace")
