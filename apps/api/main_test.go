package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/student"
)

func Test_setUpRepositories_memory(t *testing.T) {
	conf := core.NewConfig()
	conf.Database.Engine = engineMemory

	repos, err := setUpRepositories(conf)
	require.NoError(t, err)
	defer func() { _ = repos.close() }()
	assert.Nil(t, repos.db)

	col, err := repos.colleges.GetCollege(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, col.IsActive)

	// the seeded college accepts conversions with the default ID settings
	nextID, err := student.NewAllocator(repos.students, conf.Students).Allocate(context.Background(), col, 2024)
	require.NoError(t, err)
	assert.Equal(t, "STU20240001", nextID)
}
