// Copyright 2025 BINARY Members
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

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerCreate(t *testing.T) {
	m := NewManager(64)

	assert.NoError(t, m.Create(1, "btree_idx", KindBTree))
	assert.NoError(t, m.Create(1, "hash_idx", KindHash))
	assert.ErrorIs(t, m.Create(1, "btree_idx", KindBTree), ErrIndexExists)
	assert.ErrorIs(t, m.Create(1, "weird", Kind(9)), ErrUnknownKind)

	// same name under another table is a different index
	assert.NoError(t, m.Create(2, "btree_idx", KindBTree))
}

func TestManagerGetDrop(t *testing.T) {
	m := NewManager(64)
	assert.NoError(t, m.Create(1, "pk", KindBTree))

	idx, err := m.Get(1, "pk")
	assert.NoError(t, err)
	assert.NotNil(t, idx)

	_, err = m.Get(1, "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)

	assert.NoError(t, m.Drop(1, "pk"))
	assert.ErrorIs(t, m.Drop(1, "pk"), ErrTableNotFound)
}

func TestManagerValidateAccess(t *testing.T) {
	m := NewManager(64)
	assert.NoError(t, m.Create(1, "pk", KindBTree))

	idx, err := m.Get(1, "pk")
	assert.NoError(t, err)
	assert.NoError(t, idx.Insert(IntKey(1), 100, 10))

	nodes, err := m.ValidateAccess(1, "pk", IntKey(0), IntKey(5), 20)
	assert.NoError(t, err)
	assert.NotEmpty(t, nodes)

	// a node written past the accessor's timestamp fails
	_, err = m.ValidateAccess(1, "pk", IntKey(0), IntKey(5), 5)
	assert.ErrorIs(t, err, ErrValidationFailed)

	m.UpdateTimestamps(nodes, 20)
	assert.Equal(t, uint64(20), nodes[0].RTS())

	// a node read past the accessor's timestamp fails too
	_, err = m.ValidateAccess(1, "pk", IntKey(0), IntKey(5), 15)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
