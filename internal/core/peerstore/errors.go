package peerstore

import "errors"

// ErrNotFound 节点未找到
var ErrNotFound = errors.New("peerstore: peer not found")
