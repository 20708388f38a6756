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

package database

import (
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = NewModelRegistry()

// SQLModel is an entity whose table is created by CreateTables.
// Instance must return a bun model pointer; lower Priority tables are
// created first.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry stores SQL models and exposes them in a deterministic order.
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
}

type modelRegistry struct {
	models []SQLModel
	seen   map[reflect.Type]struct{}
	mutex  sync.RWMutex
}

func NewModelRegistry() ModelRegistry {
	return &modelRegistry{
		models: make([]SQLModel, 0),
		seen:   make(map[reflect.Type]struct{}),
	}
}

// Register adds model once per Go type; repeated registrations are ignored.
func (r *modelRegistry) Register(model SQLModel) {
	if model == nil || model.Instance() == nil {
		return
	}
	typ := reflect.TypeOf(model.Instance())
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.seen[typ]; ok {
		return
	}
	r.seen[typ] = struct{}{}
	r.models = append(r.models, model)
}

// Models returns the registered models ordered by priority, then by
// registration order.
func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type ModelAdapter struct {
	instance interface{}
	priority int
}

func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{
		instance: instance,
		priority: priority,
	}
}

func (a *ModelAdapter) Instance() interface{} {
	return a.instance
}

func (a *ModelAdapter) Priority() int {
	return a.priority
}

func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredModel adds a model to the default registry.
func RegisteredModel(model SQLModel) {
	defaultRegistry.Register(model)
}

func RegisteredModelInstances() []interface{} {
	return modelInstances(GetRegisteredModels())
}

func modelInstances(models []SQLModel) []interface{} {
	out := make([]interface{}, len(models))
	for i, model := range models {
		out[i] = model.Instance()
	}
	return out
}
