package reputation

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "reputation")
