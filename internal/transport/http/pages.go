package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var landingPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>HubMarket Accounts</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; background: #f4f6f8; color: #222; }
main { max-width: 420px; margin: 40px auto; }
form { background: #fff; padding: 20px; margin-bottom: 24px; border-radius: 8px; box-shadow: 0 4px 20px rgba(0,0,0,0.08); }
input { width: 100%; padding: 8px; margin: 6px 0; box-sizing: border-box; }
button { padding: 10px 20px; border: none; border-radius: 4px; background: #2d6cdf; color: #fff; cursor: pointer; }
pre { white-space: pre-wrap; background: #fff; padding: 12px; border-radius: 8px; }
</style>
</head>
<body>
<main>
  <form id="signup" enctype="multipart/form-data">
    <h2>Sign up</h2>
    <input name="first_name" placeholder="First name" required />
    <input name="last_name" placeholder="Last name" required />
    <input name="user_name" placeholder="User name" required />
    <input type="email" name="email" placeholder="Email" required />
    <input name="address" placeholder="Address" required />
    <input name="mobile_no" placeholder="Mobile number" inputmode="numeric" required />
    <input name="gender" placeholder="Gender" required />
    <input type="password" name="password" placeholder="Password" required />
    <input type="file" name="photo" accept="image/*" />
    <button type="submit">Create account</button>
  </form>
  <form id="login">
    <h2>Log in</h2>
    <input name="email" placeholder="Email or leave blank" />
    <input name="user_name" placeholder="User name or leave blank" />
    <input type="password" name="password" placeholder="Password" required />
    <button type="submit">Log in</button>
  </form>
  <pre id="result"></pre>
</main>
<script>
async function submitTo(path, form) {
  const response = await fetch(path, { method: 'POST', body: new FormData(form) });
  const data = await response.json();
  document.getElementById('result').textContent = response.status + ' ' + JSON.stringify(data, null, 2);
}
document.getElementById('signup').onsubmit = function (event) { event.preventDefault(); submitTo('/signup', event.target); };
document.getElementById('login').onsubmit = function (event) { event.preventDefault(); submitTo('/login', event.target); };
</script>
</body>
</html>`

func RegisterPages(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.HTML(http.StatusOK, landingPageHTML)
	})
}
