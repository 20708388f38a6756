/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import "errors"

var (
	// ErrInvalidState reports transaction lifecycle misuse. It is always
	// wrapped with the specific misuse.
	ErrInvalidState = errors.New("invalid unit of work state")

	// ErrNoRowsAffected is returned when an update or delete matched no row.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrUpsertUnsupported is returned by Upsert on a dialect with neither
	// ON CONFLICT nor ON DUPLICATE KEY support.
	ErrUpsertUnsupported = errors.New("upsert not supported by dialect")
)
