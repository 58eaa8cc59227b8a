// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	// Callers recover locally by treating it as an absent result.
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable indicates a connection or engine-level failure of
	// the underlying store. Fatal to the current operation, propagated to
	// the caller, never retried internally.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStorageClosed indicates that the store is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery indicates invalid query parameters.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrMalformedRecord indicates a stored record missing required fields.
	// Such records are skipped with a warning, not fatal to the query.
	ErrMalformedRecord = errors.New("malformed record")
)
