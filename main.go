// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

package main

import (
	"github.com/unimib-datAI/flhet/agent"
)

func main() {
	agent.Main()
}
