package ratelimit

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "ratelimit")
