// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package env provides an interface-based abstraction for environment variable
access, enabling dependency injection and testing isolation.

# Basic Usage

Use OSReader to read environment variables via the standard os package:

	reader := &env.OSReader{}
	root, ok := env.Get(reader, "INSTALL_ROOT") // reads KRITA_BUNDLE_INSTALL_ROOT

# Testing

MapReader serves a fixed set of variables. A generated mock is available in
the mocks sub-package:

	ctrl := gomock.NewController(t)
	mock := mocks.NewMockReader(ctrl)
	mock.EXPECT().LookupEnv("KRITA_BUNDLE_LOG_LEVEL").Return("debug", true)
*/
package env
