// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wm is the window and widget subsystem. Everything it manages
// is reachable only through the filesystem the registry builds: windows
// and widgets are directories of callback-backed property files, input
// devices are files, and control operations are text commands written
// to ctl files. There is no other API.
//
// The [Registry] owns all shared state: the vfs tree, the window and
// widget tables, input focus, and the render hook. Its mutex is the
// single guard handed to the protocol server, so every request — and
// every property mutation and synchronous render it triggers — runs
// serialized.
//
// Tree layout served by a registry:
//
//	/
//	├── win/
//	│   ├── ctl                      write "new <title> <w>x<h>"
//	│   └── {id}/
//	│       ├── title rect visible ctl events
//	│       ├── widgets/{wid}/...
//	│       ├── dev/{draw,screen,cons,mouse,kbd}
//	│       └── win/                 recursive nesting
//	├── dev/                         root screen devices
//	└── mnt/wm/{version,ctl,events}
package wm
