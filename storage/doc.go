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


// Package storage defines the index store contract for passagedb.
//
// An IndexStore manages two collections: document metadata and passages.
// The binding requirement on implementations is dual indexing of the
// passage collection: text must be searchable by a term-frequency engine
// and embeddings by a nearest-neighbor engine, with identical filter
// semantics in both modes so that fused retrieval compares like with like.
//
// The production implementation lives in storage/sqlite, built on SQLite
// with the FTS5 extension for lexical search and the sqlite-vec extension
// for vector search.
package storage
