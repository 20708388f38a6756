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

package types

// Mode tells whether mutations are persisted per call or deferred to a commit.
type Mode int

const (
	ModeAutocommit Mode = iota
	ModeTransactional
)

var _ BaseEnum = ModeAutocommit

func (m Mode) IsValid() bool { return m == ModeAutocommit || m == ModeTransactional }

func (m Mode) Number() int {
	if !m.IsValid() {
		return IllegalValue
	}
	return int(m)
}

func (m Mode) Name() string {
	switch m {
	case ModeAutocommit:
		return "autocommit"
	case ModeTransactional:
		return "transactional"
	default:
		return IllegalName
	}
}

func (m Mode) String() string { return m.Name() }

func (m Mode) Desc() string {
	switch m {
	case ModeAutocommit:
		return "each mutation is flushed and committed before the call returns"
	case ModeTransactional:
		return "mutations are staged until the open transaction commits"
	default:
		return IllegalDesc
	}
}

// TxState is the state of a unit of work's transaction lifecycle.
type TxState int

const (
	TxIdle TxState = iota
	TxActive
)

var _ BaseEnum = TxIdle

func (s TxState) IsValid() bool { return s == TxIdle || s == TxActive }

func (s TxState) Number() int {
	if !s.IsValid() {
		return IllegalValue
	}
	return int(s)
}

func (s TxState) Name() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxActive:
		return "in_transaction"
	default:
		return IllegalName
	}
}

func (s TxState) String() string { return s.Name() }

func (s TxState) Desc() string {
	switch s {
	case TxIdle:
		return "no transaction handle is held"
	case TxActive:
		return "one transaction handle is held"
	default:
		return IllegalDesc
	}
}

// Mode returns the operation mode implied by the state.
func (s TxState) Mode() Mode {
	if s == TxActive {
		return ModeTransactional
	}
	return ModeAutocommit
}
