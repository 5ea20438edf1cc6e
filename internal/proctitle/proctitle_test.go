package proctitle

import "testing"

func TestName(t *testing.T) {
	cases := []struct {
		program string
		comment string
		want    string
	}{
		{program: "ringtostdout", comment: "", want: "ringtostdout"},
		{program: "r2s", comment: "to host a", want: "to_host_a:r2s"},
		{program: "ringtostdout", comment: "sock3", want: "sock3:ringtosto"},
		{program: "ringtostdout", comment: "sock to host spdaq42", want: "sock_to_host_sp"},
	}
	for _, tc := range cases {
		if got := Name(tc.program, tc.comment); got != tc.want {
			t.Fatalf("Name(%q, %q) = %q, want %q", tc.program, tc.comment, got, tc.want)
		}
	}
}

func TestSetAcceptsLongNames(t *testing.T) {
	if err := Set("ringlink-test-with-a-long-name"); err != nil {
		t.Fatalf("set: %v", err)
	}
}
