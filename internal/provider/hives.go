package provider

import (
	"fmt"
	"io"
	"strings"
)

// Hive is a predefined registry root.
type Hive struct {
	Short string
	Long  string
	// Key is the predefined HKEY value.
	Key uint32
}

var hives = []Hive{
	{Short: "HKLM", Long: "HKEY_LOCAL_MACHINE", Key: 0x80000002},
	{Short: "HKCR", Long: "HKEY_CLASSES_ROOT", Key: 0x80000000},
	{Short: "HKCC", Long: "HKEY_CURRENT_CONFIG", Key: 0x80000005},
	{Short: "HKCU", Long: "HKEY_CURRENT_USER", Key: 0x80000001},
	{Short: "HKCULL", Long: "HKEY_CURRENT_USER_LOCAL_SETTINGS", Key: 0x80000007},
	{Short: "HKDD", Long: "HKEY_DYN_DATA", Key: 0x80000006},
	{Short: "HKPD", Long: "HKEY_PERFORMANCE_DATA", Key: 0x80000004},
	{Short: "HKPL", Long: "HKEY_PERFORMANCE_NLSTEXT", Key: 0x80000060},
	{Short: "HKPT", Long: "HKEY_PERFORMANCE_TEXT", Key: 0x80000050},
	{Short: "HKU", Long: "HKEY_USERS", Key: 0x80000003},
}

// Hives returns the known registry roots.
func Hives() []Hive {
	out := make([]Hive, len(hives))
	copy(out, hives)
	return out
}

// LookupHive finds a hive by short or long name, case-insensitively.
func LookupHive(name string) (Hive, bool) {
	name = strings.TrimSpace(name)
	for _, h := range hives {
		if strings.EqualFold(h.Short, name) || strings.EqualFold(h.Long, name) {
			return h, true
		}
	}
	return Hive{}, false
}

// PrintHives writes one "SHORT, LONG, KEY" line per hive.
func PrintHives(w io.Writer, prefix string) error {
	for _, h := range hives {
		if _, err := fmt.Fprintf(w, "%s%s, %s, %#x\n", prefix, h.Short, h.Long, h.Key); err != nil {
			return err
		}
	}
	return nil
}
