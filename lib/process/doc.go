// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint helper.
//
// [Exit] reports a command's error on stderr and maps it to an exit
// status, honouring [ExitError] for commands that need a status other
// than 1 (parc exits 2 when an archive was written with some inputs
// missing).
package process
