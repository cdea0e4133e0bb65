package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeShellCommand_AcceptsAllowedProcess(t *testing.T) {
	assert.NoError(t, SanitizeShellCommand("docker ps -a"))
}

func TestSanitizeShellCommand_RejectsDisallowedProcess(t *testing.T) {
	assert.Error(t, SanitizeShellCommand("rm -rf /"))
}

func TestSanitizeShellCommand_RejectsForbiddenCharacters(t *testing.T) {
	cases := []string{
		"docker ps; rm -rf /",
		"docker ps | grep foo",
		"docker `whoami`",
		"docker $HOME",
		"docker ps && echo done",
		"docker ps > out.txt",
		"docker ps < in.txt",
		"docker (ps)",
		"docker {ps}",
	}
	for _, c := range cases {
		assert.Error(t, SanitizeShellCommand(c), c)
	}
}

func TestSanitizeShellCommand_RejectsControlCharacters(t *testing.T) {
	assert.Error(t, SanitizeShellCommand("docker ps\nrm -rf /"))
	assert.Error(t, SanitizeShellCommand("docker ps\x00"))
}

func TestSanitizeShellCommand_RejectsEmpty(t *testing.T) {
	assert.Error(t, SanitizeShellCommand(""))
}

func TestValidateHostname_AcceptsValid(t *testing.T) {
	assert.NoError(t, ValidateHostname("i-1.fleet.internal"))
}

func TestValidateHostname_RejectsEmpty(t *testing.T) {
	assert.Error(t, ValidateHostname(""))
}

func TestValidateHostname_RejectsTooLong(t *testing.T) {
	long := ""
	for i := 0; i < 254; i++ {
		long += "a"
	}
	assert.Error(t, ValidateHostname(long))
}

func TestValidateHostname_RejectsEmptyLabel(t *testing.T) {
	assert.Error(t, ValidateHostname("i-1..fleet"))
}

func TestValidateHostname_RejectsLeadingHyphen(t *testing.T) {
	assert.Error(t, ValidateHostname("-i-1.fleet"))
}

func TestValidateHostname_RejectsTrailingHyphen(t *testing.T) {
	assert.Error(t, ValidateHostname("i-1-.fleet"))
}

func TestValidateHostname_RejectsInvalidCharacter(t *testing.T) {
	assert.Error(t, ValidateHostname("i_1.fleet"))
}
