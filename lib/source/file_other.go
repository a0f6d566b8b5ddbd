// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package source

func adviseWillNeed(path string) error { return nil }
