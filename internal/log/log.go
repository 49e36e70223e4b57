// Copyright 2024 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

// Package log is a thin wrapper around logrus, giving the rest of the
// module a package-level logger without each caller constructing its own.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger instance used throughout the module.
var Log = logrus.New()

// SetOutput redirects where log lines are written.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}

// SetLevel controls verbosity.
func SetLevel(level logrus.Level) {
	Log.SetLevel(level)
}

func Debugf(format string, args ...interface{}) {
	Log.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Log.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Log.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Log.Errorf(format, args...)
}
