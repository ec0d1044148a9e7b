package mobility

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "mobility")
