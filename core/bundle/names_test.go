package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryNamer(t *testing.T) {
	n := newEntryNamer()
	assert.Equal(t, "submissions/SE1.zip", n.next(submissionsDir, "SE1.zip"))
	assert.Equal(t, "submissions/se1_2.zip", n.next(submissionsDir, "se1.zip"))
	assert.Equal(t, "submissions/SE1_no_file.txt", n.next(submissionsDir, "SE1_no_file.txt"))
	assert.Equal(t, "submissions/SE1_2_no_file.txt", n.next(submissionsDir, "SE1_no_file.txt"))
}
