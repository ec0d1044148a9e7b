package routecache

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "routecache")
