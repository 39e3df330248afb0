package netif

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/jackpal/gateway"
)

var ErrNoInterfaces = errors.New("no network interfaces found")

// Address is an IPv4 address bound to a named interface.
type Address struct {
	Interface string
	IP        net.IP
	Net       *net.IPNet
}

func (a Address) String() string {
	return fmt.Sprintf("%s: %s", a.Interface, a.IP)
}

// discoverGateway is swapped in tests.
var discoverGateway = gateway.DiscoverGateway

// Interfaces returns the IPv4 addresses of all up, non-loopback interfaces.
// The address on the default gateway's subnet, if any, comes first.
func Interfaces() ([]Address, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve network interfaces: %w", err)
	}

	var addrs []Address
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		ifAddrs, err := iface.Addrs()
		if err != nil {
			log.Printf("warning: failed to get addresses for interface %s: %v", iface.Name, err)
			continue
		}

		for _, addr := range ifAddrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}

			ipv4 := ipnet.IP.To4()
			if ipv4 == nil || ipv4.IsLoopback() {
				continue
			}

			addrs = append(addrs, Address{Interface: iface.Name, IP: ipv4, Net: ipnet})
		}
	}

	if len(addrs) == 0 {
		return nil, ErrNoInterfaces
	}

	gw, err := discoverGateway()
	if err != nil {
		return addrs, nil
	}

	return preferGateway(addrs, gw), nil
}

// preferGateway moves the first address whose subnet contains gw to the front.
func preferGateway(addrs []Address, gw net.IP) []Address {
	for i, addr := range addrs {
		if addr.Net == nil || !addr.Net.Contains(gw) {
			continue
		}

		if i == 0 {
			return addrs
		}

		ordered := make([]Address, 0, len(addrs))
		ordered = append(ordered, addr)
		ordered = append(ordered, addrs[:i]...)
		ordered = append(ordered, addrs[i+1:]...)

		return ordered
	}

	return addrs
}

// Select picks the address to advertise. A non-empty preferred value matching
// an interface name or IP is returned without prompting; otherwise the list is
// printed to out and a 1-based choice is read from in. Empty input, EOF or an
// invalid choice fall back to the first address.
func Select(addrs []Address, in io.Reader, out io.Writer, preferred string) (Address, error) {
	if len(addrs) == 0 {
		return Address{}, ErrNoInterfaces
	}

	preferred = strings.TrimSpace(preferred)
	if preferred != "" {
		for _, addr := range addrs {
			if addr.Interface == preferred || addr.IP.String() == preferred {
				return addr, nil
			}
		}

		fmt.Fprintf(out, "Interface %q not found.\n", preferred)
	}

	fmt.Fprintln(out, "\nAvailable network interfaces:")
	for i, addr := range addrs {
		fmt.Fprintf(out, "%d. %s\n", i+1, addr)
	}

	fmt.Fprint(out, "\nSelect interface to use for QR code [1]: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Address{}, fmt.Errorf("read interface choice: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return addrs[0], nil
	}

	choice, err := strconv.Atoi(line)
	if err != nil {
		fmt.Fprintf(out, "Invalid input. Using %s\n", addrs[0].IP)
		return addrs[0], nil
	}

	if choice < 1 || choice > len(addrs) {
		fmt.Fprintf(out, "Invalid choice. Using %s\n", addrs[0].IP)
		return addrs[0], nil
	}

	return addrs[choice-1], nil
}
