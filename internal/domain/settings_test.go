package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsMerge(t *testing.T) {
	pw := "secret"
	all := AllowUploadAll
	bogus := AllowUpload("everyone")

	s := DefaultSettings().Merge(SettingsPatch{Password: &pw})
	assert.True(t, s.HasPassword())
	assert.Equal(t, AllowUploadHost, s.AllowUpload)

	s = s.Merge(SettingsPatch{AllowUpload: &all})
	assert.True(t, s.HasPassword())
	assert.Equal(t, AllowUploadAll, s.AllowUpload)

	s = s.Merge(SettingsPatch{AllowUpload: &bogus})
	assert.Equal(t, AllowUploadAll, s.AllowUpload)

	empty := ""
	s = s.Merge(SettingsPatch{Password: &empty})
	assert.False(t, s.HasPassword())
}

func TestCheckPassword(t *testing.T) {
	pw := "secret"
	wrong := "nope"

	assert.True(t, DefaultSettings().CheckPassword(nil))
	assert.True(t, DefaultSettings().CheckPassword(&wrong))

	s := SettingsFromPatch(SettingsPatch{Password: &pw})
	assert.False(t, s.CheckPassword(nil))
	assert.False(t, s.CheckPassword(&wrong))
	assert.True(t, s.CheckPassword(&pw))
}
