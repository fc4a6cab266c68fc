package adapter

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"netinspect/internal/domain"
)

const huaweiStatusOutput = `
Local Intf       Status   Neighbor Dev        Neighbor Intf
---------------------------------------------------------------
GigabitEthernet0/0/1  Up    access-sw1     GigabitEthernet0/0/24
GigabitEthernet0/0/2  Down  10.0.0.9       GigabitEthernet0/0/1
Total: 2
`

const huaweiBriefOutput = "Local Intf       Neighbor Dev             Neighbor Intf             Exptime(s)\r\n" +
	"GE0/0/1          core-sw1                 GE0/0/48                  104\r\n" +
	"GE0/0/2          core-sw2                 GE0/0/47                  97\r\n"

func TestParseLLDPOutput(t *testing.T) {
	t.Run("status layout", func(t *testing.T) {
		records := ParseLLDPOutput(7, "core-sw1", huaweiStatusOutput)
		require.Len(t, records, 2)

		assert.Equal(t, domain.RawLinkRecord{
			DeviceID:     7,
			DeviceName:   "core-sw1",
			LocalPort:    "GigabitEthernet0/0/1",
			Neighbor:     "access-sw1",
			NeighborPort: "GigabitEthernet0/0/24",
			Status:       "Up",
		}, records[0])
		assert.Equal(t, "Down", records[1].Status)
		assert.Equal(t, "10.0.0.9", records[1].Neighbor)
	})

	t.Run("brief layout has no status", func(t *testing.T) {
		records := ParseLLDPOutput(3, "access-sw1", huaweiBriefOutput)
		require.Len(t, records, 2)

		assert.Equal(t, "GE0/0/1", records[0].LocalPort)
		assert.Equal(t, "core-sw1", records[0].Neighbor)
		assert.Equal(t, "GE0/0/48", records[0].NeighborPort)
		assert.Empty(t, records[0].Status)
	})

	t.Run("status case is canonicalized", func(t *testing.T) {
		records := ParseLLDPOutput(1, "a", "Eth1  UP  b  Eth2\n")
		require.Len(t, records, 1)
		assert.Equal(t, "Up", records[0].Status)
	})

	t.Run("empty output", func(t *testing.T) {
		assert.Empty(t, ParseLLDPOutput(1, "a", ""))
		assert.Empty(t, ParseLLDPOutput(1, "a", "  \n\n"))
	})

	t.Run("unrelated output", func(t *testing.T) {
		assert.Empty(t, ParseLLDPOutput(1, "a", "Error: Unrecognized command found at '^' position.\n"))
	})
}

func TestSSHDiscovererCommandFor(t *testing.T) {
	s := NewSSHDiscoverer(SSHConfig{Commands: map[string]string{"Juniper": "show lldp neighbors"}}, zerolog.Nop())

	tests := []struct {
		vendor string
		want   string
	}{
		{"huawei", huaweiLLDPCommand},
		{"Huawei", huaweiLLDPCommand},
		{"华为", huaweiLLDPCommand},
		{"cisco", ciscoLLDPCommand},
		{" Cisco ", ciscoLLDPCommand},
		{"juniper", "show lldp neighbors"},
		{"", huaweiLLDPCommand},
		{"unknown", huaweiLLDPCommand},
	}

	for _, tt := range tests {
		if got := s.commandFor(tt.vendor); got != tt.want {
			t.Errorf("commandFor(%q) = %q, want %q", tt.vendor, got, tt.want)
		}
	}
}

func TestSSHDiscovererRequiresCredential(t *testing.T) {
	s := NewSSHDiscoverer(DefaultSSHConfig(), zerolog.Nop())

	_, err := s.DiscoverNeighbors(context.Background(), domain.Device{IP: "127.0.0.1"}, domain.Credential{Username: "admin"})
	require.Error(t, err)
}

// startSSHServer runs a one-shot-per-connection SSH server that answers every
// exec request with output
func startSSHServer(t *testing.T, user, password, output string) (host string, port int) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == user && string(pass) == password {
				return nil, nil
			}
			return nil, assert.AnError
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSSHConn(conn, config, output)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func serveSSHConn(conn net.Conn, config *ssh.ServerConfig, output string) {
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		channel, requests, err := newChan.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer channel.Close()
			for req := range requests {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				_ = req.Reply(true, nil)
				_, _ = channel.Write([]byte(output))

				status := make([]byte, 4)
				binary.BigEndian.PutUint32(status, 0)
				_, _ = channel.SendRequest("exit-status", false, status)
				return
			}
		}()
	}
}

func TestSSHDiscovererAgainstServer(t *testing.T) {
	host, port := startSSHServer(t, "admin", "s3cret", huaweiStatusOutput)

	s := NewSSHDiscoverer(SSHConfig{
		Port:              port,
		ConnectionTimeout: 2 * time.Second,
		CommandTimeout:    2 * time.Second,
	}, zerolog.Nop())
	device := domain.Device{ID: 11, Name: "core-sw1", IP: host, Vendor: "huawei"}

	t.Run("collects neighbor records", func(t *testing.T) {
		records, err := s.DiscoverNeighbors(context.Background(), device, domain.Credential{Username: "admin", Secret: "s3cret"})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, int64(11), records[0].DeviceID)
		assert.Equal(t, "core-sw1", records[0].DeviceName)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		_, err := s.DiscoverNeighbors(context.Background(), device, domain.Credential{Username: "admin", Secret: "nope"})
		require.Error(t, err)
	})
}

func TestSSHDiscovererDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	s := NewSSHDiscoverer(SSHConfig{Port: port, ConnectionTimeout: time.Second}, zerolog.Nop())
	_, err = s.DiscoverNeighbors(context.Background(),
		domain.Device{IP: "127.0.0.1"},
		domain.Credential{Username: "admin", Secret: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), strconv.Itoa(port))
}
