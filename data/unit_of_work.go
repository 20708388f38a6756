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


package data

import (
	"github.com/tomoncle/storekit/repository"
	"github.com/uptrace/bun"
)

// UnitOfWork groups the application repositories around one session.
type UnitOfWork struct {
	*repository.UnitOfWork
	demos *DemoRepository
}

func NewUnitOfWork(db *bun.DB, opts ...repository.Option) *UnitOfWork {
	return &UnitOfWork{UnitOfWork: repository.NewUnitOfWork(db, opts...)}
}

// Demos returns the demo repository, creating it on first use.
func (u *UnitOfWork) Demos() *DemoRepository {
	if u.demos == nil {
		u.demos = NewDemoRepository(u.Session())
	}
	return u.demos
}
