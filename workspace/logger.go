package workspace

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "workspace")
