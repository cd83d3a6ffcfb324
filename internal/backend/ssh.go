package backend

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultSSHPort = "22"

// SSHConfig describes one remote target. Identity always comes from the
// caller's ssh-agent.
type SSHConfig struct {
	Host                        string
	Port                        string
	User                        string
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	// Timeout bounds the TCP dial and the SSH handshake, not commands.
	Timeout time.Duration
}

// SSH is a Remote-Session backend holding one authenticated connection for
// its whole lifetime.
type SSH struct {
	addr      string
	client    *ssh.Client
	agentConn net.Conn
	sftp      *sftp.Client
}

// DialSSH connects to cfg.Host, performs the handshake and authenticates with
// the identities offered by SSH_AUTH_SOCK.
func DialSSH(cfg SSHConfig) (*SSH, error) {
	address, err := cfg.address()
	if err != nil {
		return nil, err
	}

	agentConn, signers, err := dialAgent()
	if err != nil {
		return nil, err
	}

	config, err := cfg.clientConfig([]ssh.AuthMethod{ssh.PublicKeysCallback(signers)})
	if err != nil {
		agentConn.Close()
		return nil, err
	}

	conn, err := net.DialTimeout("tcp", address, cfg.Timeout)
	if err != nil {
		agentConn.Close()
		return nil, fmt.Errorf("%w: dial %s: %v", ErrTransport, address, err)
	}

	// NewClientConn ignores config.Timeout, so bound the handshake here.
	if cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		agentConn.Close()
		return nil, fmt.Errorf("%w: handshake %s: %v", ErrTransport, address, err)
	}
	_ = conn.SetDeadline(time.Time{})

	log.Debug().Str("backend", "ssh").Str("addr", address).Str("user", config.User).Msg("session established")
	return &SSH{
		addr:      address,
		client:    ssh.NewClient(clientConn, chans, reqs),
		agentConn: agentConn,
	}, nil
}

func (s *SSH) Kind() Kind {
	return KindRemote
}

// Addr returns the dialed host:port.
func (s *SSH) Addr() string {
	return s.addr
}

// RunCommand opens a fresh session channel, runs c to completion and closes
// the channel.
func (s *SSH) RunCommand(c string) (CommandResult, error) {
	if s.client == nil {
		return CommandResult{}, fmt.Errorf("%w: session closed", ErrTransport)
	}
	session, err := s.client.NewSession()
	if err != nil {
		return CommandResult{}, fmt.Errorf("%w: open channel: %v", ErrTransport, err)
	}
	defer session.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = session.Run(c)
	res := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *ssh.ExitError
	var missingErr *ssh.ExitMissingError
	switch {
	case err == nil:
		res.Success = true
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitStatus()
	case errors.As(err, &missingErr):
		res.ExitCode = -1
	default:
		return CommandResult{}, fmt.Errorf("%w: run: %v", ErrTransport, err)
	}

	log.Debug().Str("backend", "ssh").Str("addr", s.addr).Str("cmd", c).Int("exit", res.ExitCode).Msg("command finished")
	return res, nil
}

// FetchFile reads path over the session's sftp subsystem, opened on first use.
func (s *SSH) FetchFile(path string) ([]byte, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: session closed", ErrTransport)
	}
	if s.sftp == nil {
		client, err := sftp.NewClient(s.client)
		if err != nil {
			return nil, fmt.Errorf("%w: sftp: %v", ErrTransport, err)
		}
		s.sftp = client
	}

	f, err := s.sftp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sftp open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("sftp read %s: %w", path, err)
	}
	return data, nil
}

// Close releases the sftp client, the connection and the agent socket.
// Calling it again is a no-op.
func (s *SSH) Close() error {
	var errs []error
	if s.sftp != nil {
		errs = append(errs, s.sftp.Close())
		s.sftp = nil
	}
	if s.client != nil {
		errs = append(errs, s.client.Close())
		s.client = nil
	}
	if s.agentConn != nil {
		errs = append(errs, s.agentConn.Close())
		s.agentConn = nil
	}
	if len(errs) > 0 {
		log.Debug().Str("backend", "ssh").Str("addr", s.addr).Msg("session closed")
	}
	return errors.Join(errs...)
}

func dialAgent() (net.Conn, func() ([]ssh.Signer, error), error) {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	if sock == "" {
		return nil, nil, fmt.Errorf("%w: SSH_AUTH_SOCK is not set", ErrTransport)
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ssh agent: %v", ErrTransport, err)
	}
	return conn, agent.NewClient(conn).Signers, nil
}

func (c SSHConfig) address() (string, error) {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		return "", fmt.Errorf("ssh host is required")
	}

	if c.Port != "" {
		return net.JoinHostPort(host, c.Port), nil
	}

	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}

	return net.JoinHostPort(host, defaultSSHPort), nil
}

func (c SSHConfig) user() (string, error) {
	if name := strings.TrimSpace(c.User); name != "" {
		return name, nil
	}
	if name := strings.TrimSpace(os.Getenv("USER")); name != "" {
		return name, nil
	}
	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("ssh user unresolved: %w", err)
	}
	return current.Username, nil
}

func (c SSHConfig) clientConfig(auth []ssh.AuthMethod) (*ssh.ClientConfig, error) {
	name, err := c.user()
	if err != nil {
		return nil, err
	}

	var hostKeyCallback ssh.HostKeyCallback
	if c.InsecureSkipHostKeyChecking {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		callback, err := c.knownHostsCallback()
		if err != nil {
			return nil, err
		}
		hostKeyCallback = callback
	}

	return &ssh.ClientConfig{
		User:            name,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.Timeout,
	}, nil
}

func (c SSHConfig) knownHostsCallback() (ssh.HostKeyCallback, error) {
	path := strings.TrimSpace(c.KnownHostsPath)
	if path == "" {
		path = "~/.ssh/known_hosts"
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("known hosts path %q: %w", path, err)
	}
	return knownhosts.New(expanded)
}
